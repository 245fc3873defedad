package tool

import (
	"encoding/json"
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

var (
	orderIDPattern        = regexp.MustCompile(`\bORD[0-9A-Z]+\b`)
	trackingNumberPattern = regexp.MustCompile(`\b\d{10,14}\b`)
)

// TaskInvocation maps a decomposed sub-task onto the capability that serves it and the JSON
// arguments to call it with. Identifiers mentioned in the description are lifted into arguments.
func TaskInvocation(task contractx.SubTask) (name string, argsJSON string) {
	desc := strings.TrimSpace(task.Description)

	switch task.Type {
	case contractx.TaskUserInfo:
		return NameOrderLookup, "{}"
	case contractx.TaskOrderLookup:
		if id := orderIDPattern.FindString(strings.ToUpper(desc)); id != "" {
			return NameOrderLookup, mustJSON(map[string]string{"order_id": id})
		}
		return NameOrderLookup, "{}"
	case contractx.TaskDeliveryTracking:
		if num := trackingNumberPattern.FindString(desc); num != "" {
			return NameDeliveryTracking, mustJSON(map[string]string{"tracking_number": num})
		}
		if id := orderIDPattern.FindString(strings.ToUpper(desc)); id != "" {
			return NameDeliveryTracking, mustJSON(map[string]string{"order_id": id})
		}
		return NameDeliveryTracking, "{}"
	case contractx.TaskProductSearch:
		return NameProductSearch, mustJSON(map[string]string{"keyword": strings.TrimSpace(task.Keyword)})
	case contractx.TaskRAGSearch:
		return NameRAGSearch, mustJSON(map[string]string{"query": desc})
	default:
		return "", ""
	}
}

func mustJSON(v map[string]string) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
