package tmpdir

import "strings"

// ResolveTemplate returns the effective directory template for a build:
// the job-level template when set, the global template otherwise.
func ResolveTemplate(jobTemplate, globalTemplate string) string {
	if jobTemplate != "" {
		return jobTemplate
	}
	return globalTemplate
}

// ExpandTemplate substitutes $VAR and ${VAR} references in the template using
// the build environment. References to variables absent from env are left
// intact, so a misspelled variable surfaces literally in the created path
// instead of silently collapsing to an empty segment.
func ExpandTemplate(template string, env map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' || i+1 == len(template) {
			b.WriteByte(c)
			i++
			continue
		}

		if template[i+1] == '{' {
			end := strings.IndexByte(template[i+2:], '}')
			if end < 0 {
				b.WriteString(template[i:])
				break
			}
			name := template[i+2 : i+2+end]
			if value, ok := env[name]; ok && name != "" {
				b.WriteString(value)
			} else {
				b.WriteString(template[i : i+3+end])
			}
			i += 3 + end
			continue
		}

		name := leadingVarName(template[i+1:])
		if name == "" {
			b.WriteByte(c)
			i++
			continue
		}
		if value, ok := env[name]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(template[i : i+1+len(name)])
		}
		i += 1 + len(name)
	}

	return b.String()
}

// leadingVarName returns the longest [A-Za-z0-9_] prefix of s.
func leadingVarName(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			continue
		}
		return s[:i]
	}
	return s
}
