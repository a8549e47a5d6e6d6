package detector

import "regexp"

// Format is a well-known timestamp layout that logmerge does not date.
// Lines in these formats are ignored by the merge, so inspect names them to
// explain a file with few records.
type Format struct {
	Name    string
	Pattern *regexp.Regexp
	// Example is shown by inspect next to the line count.
	Example string
}

var foreignFormats = []*Format{
	{
		Name:    "ISO 8601",
		Pattern: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),
		Example: "2024-01-15T10:30:00Z",
	},
	{
		Name:    "Bracketed datetime",
		Pattern: regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\]`),
		Example: "[2024-01-15 10:30:00]",
	},
	{
		Name:    "Datetime (space-separated)",
		Pattern: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`),
		Example: "2024-01-15 10:30:00,123",
	},
	{
		// Matches before the record grammar would: the year sits where the
		// time is expected.
		Name:    "Syslog with year",
		Pattern: regexp.MustCompile(`^[A-Za-z]{3}\s+\d{1,2}\s+\d{4}\s+\d{2}:\d{2}:\d{2}`),
		Example: "Jun 14 2024 15:16:01",
	},
	{
		Name:    "Apache/NGINX CLF",
		Pattern: regexp.MustCompile(`\[\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2}\s+[+-]\d{4}\]`),
		Example: "[15/Jun/2024:10:30:00 +0000]",
	},
	{
		Name:    "Apache error log",
		Pattern: regexp.MustCompile(`^\[[A-Za-z]{3} [A-Za-z]{3} \d{2} \d{2}:\d{2}:\d{2} \d{4}\]`),
		Example: "[Sun Dec 04 04:47:44 2005]",
	},
	{
		Name:    "Unix timestamp",
		Pattern: regexp.MustCompile(`^\d{10}(\d{3})?(\s|$)`),
		Example: "1705315800",
	},
}

func formatByName(name string) *Format {
	for _, f := range foreignFormats {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// matchForeign returns the first known format the line starts with, or nil.
func matchForeign(line string) *Format {
	for _, f := range foreignFormats {
		if f.Pattern.MatchString(line) {
			return f
		}
	}
	return nil
}
