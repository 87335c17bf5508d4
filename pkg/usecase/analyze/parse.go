package analyze

import (
	"strings"

	"github.com/m-mizutani/refundo/pkg/model"
)

// ParseVerdict extracts the structured verdict from the model's free-text
// reply. Recognized field prefixes are matched case-insensitively at the
// start of each line; everything after the first colon, trimmed, becomes the
// field value. Unrecognized lines are ignored and repeated fields are
// last-wins. The model is not required to follow the requested format, so a
// field that never appears simply stays empty; this function never fails.
func ParseVerdict(responseText string) model.Verdict {
	var verdict model.Verdict

	for _, line := range strings.Split(strings.TrimSpace(responseText), "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "status:"):
			verdict.Status = fieldValue(line)
		case strings.HasPrefix(lower, "name:"):
			verdict.EmployeeName = fieldValue(line)
		case strings.HasPrefix(lower, "date:"):
			verdict.InvoiceDate = fieldValue(line)
		case strings.HasPrefix(lower, "reason:"):
			verdict.Reason = fieldValue(line)
		}
	}

	return verdict
}

func fieldValue(line string) string {
	_, rest, _ := strings.Cut(line, ":")
	return strings.TrimSpace(rest)
}
