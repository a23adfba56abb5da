package runner

import "strings"

// Class tags an output line for presentation.
type Class int

const (
	ClassDefault Class = iota
	ClassError
	ClassProgress
	ClassRemoval
)

// String returns the presentation name of the class.
func (c Class) String() string {
	switch c {
	case ClassError:
		return "error"
	case ClassProgress:
		return "progress"
	case ClassRemoval:
		return "removal"
	default:
		return "default"
	}
}

// classifyRules is evaluated in declaration order; the first matching rule
// wins, so a line containing both "error" and "downloading" stays an error.
var classifyRules = []struct {
	substrings []string
	class      Class
}{
	{[]string{"error"}, ClassError},
	{[]string{"downloading", "merging", "extracting"}, ClassProgress},
	{[]string{"deleting"}, ClassRemoval},
}

// Classify tags a line of process output by case-insensitive substring match
// against a fixed ordered rule set.
func Classify(line string) Class {
	lowered := strings.ToLower(line)
	for _, rule := range classifyRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lowered, sub) {
				return rule.class
			}
		}
	}
	return ClassDefault
}
