package lending

import (
	"golang.org/x/text/language"

	"LIBRA-backend/internal/platform/locale"
)

const StatusUnknown Status = "unknown"

type StatusInfo struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

var statusColors = map[Status]string{
	StatusPending:  "yellow",
	StatusApproved: "green",
	StatusRejected: "red",
	StatusBorrowed: "blue",
	StatusReturned: "gray",
	StatusOverdue:  "red",
}

// Describe maps any status to its English label and colour.
// Values outside the vocabulary describe as "unknown".
func Describe(s Status) StatusInfo {
	return DescribeIn(language.English, s)
}

func DescribeIn(tag language.Tag, s Status) StatusInfo {
	color, ok := statusColors[s]
	if !ok {
		return StatusInfo{Status: StatusUnknown, Label: locale.StatusLabel(tag, string(StatusUnknown)), Color: "gray"}
	}
	return StatusInfo{Status: s, Label: locale.StatusLabel(tag, string(s)), Color: color}
}

// Vocabulary lists every status with its presentation, for UI legends and filters.
func Vocabulary(tag language.Tag) []StatusInfo {
	out := make([]StatusInfo, 0, len(Statuses))
	for _, s := range Statuses {
		out = append(out, DescribeIn(tag, s))
	}
	return out
}
