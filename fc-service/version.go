package fcservice

import "strings"

// FormatVersion joins the release version with the short commit hash, commit date and build metadata.
func FormatVersion(version string, gitCommit string, gitDate string, meta string) string {
	parts := []string{version}
	if gitCommit != "" {
		if len(gitCommit) > 8 {
			gitCommit = gitCommit[:8]
		}
		parts = append(parts, gitCommit)
	}
	if gitDate != "" {
		parts = append(parts, gitDate)
	}
	v := strings.Join(parts, "-")
	if meta != "" {
		v += "-" + meta
	}
	return v
}

// PrefixEnvVar returns the env var name for a flag, scoped to the binary's prefix.
func PrefixEnvVar(prefix, suffix string) []string {
	return []string{prefix + "_" + suffix}
}
