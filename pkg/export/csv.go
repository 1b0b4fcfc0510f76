package export

import (
	"strconv"
	"strings"

	"github.com/igorvan/omniscan/pkg/scanning"
)

// ContentType - media type of the exported file
const ContentType = "text/csv;charset=utf-8;"

var header = []string{"ID", "Value", "Format", "Timestamp"}

// CSV - serializes the whole collection, header first, one row per entry.
// Data fields are always quoted with embedded quotes doubled.
func CSV(entries []scanning.Entry) []byte {
	rows := make([]string, 0, len(entries)+1)
	rows = append(rows, strings.Join(header, ","))
	for _, e := range entries {
		rows = append(rows, strings.Join([]string{
			quote(strconv.FormatInt(e.ID, 10)),
			quote(e.Value),
			quote(e.Format),
			quote(e.Timestamp),
		}, ","))
	}
	return []byte(strings.Join(rows, "\n"))
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
