// Read-only inspector for the relay database. Opens Badger with the
// lock guard bypassed so it can run next to a live relay, and prints
// whatever lives under the chosen key prefix.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "/tmp/crew-relay", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, cmd:, job:, react:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(
		fmt.Sprintf(" crew-relay viewer | %s | prefix %q ", *dbPath, *prefix)))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Timestamp", "User", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Index keys only point at payload keys, skip them.
			if strings.HasPrefix(key, "msgix:") || strings.HasPrefix(key, "cmdix:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// toRow decodes one value by its key prefix. Unknown shapes still get a
// row with the raw payload so nothing is hidden.
func toRow(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var record struct {
			Text            string `json:"text"`
			TranslatedText  string `json:"translatedText"`
			UserID          string `json:"userId"`
			IsCalendarEvent bool   `json:"isCalendarEvent"`
			EventTitle      string `json:"eventTitle"`
			EventDate       string `json:"eventDate"`
			At              int64  `json:"at"`
		}
		if err := json.Unmarshal(value, &record); err != nil {
			break
		}
		kind := "MESSAGE"
		detail := record.Text
		if record.TranslatedText != "" {
			detail += " / " + record.TranslatedText
		}
		if record.IsCalendarEvent {
			kind = "EVENT"
			detail = fmt.Sprintf("%s (%s)", record.EventTitle, record.EventDate)
		}
		at := time.Unix(0, record.At).UTC().Format("15:04:05")
		return []string{key, kind, at, record.UserID, detail}

	case strings.HasPrefix(key, "cmd:"):
		var record struct {
			Text      string `json:"text"`
			UserID    string `json:"userId"`
			JobsiteID string `json:"jobsiteId"`
			At        int64  `json:"at"`
		}
		if err := json.Unmarshal(value, &record); err != nil {
			break
		}
		at := time.Unix(0, record.At).UTC().Format("15:04:05")
		return []string{key, "COMMAND", at, record.UserID, record.Text}

	case strings.HasPrefix(key, "job:"):
		var record struct {
			Name      string `json:"name"`
			Status    string `json:"status"`
			StartDate int64  `json:"startDate"`
		}
		if err := json.Unmarshal(value, &record); err != nil {
			break
		}
		start := time.Unix(0, record.StartDate).UTC().Format("2006-01-02")
		return []string{key, "JOBSITE", start, "", fmt.Sprintf("%s [%s]", record.Name, record.Status)}

	case strings.HasPrefix(key, "react:"):
		var record struct {
			UserID   string `json:"userId"`
			UserName string `json:"userName"`
			Emoji    string `json:"emoji"`
		}
		if err := json.Unmarshal(value, &record); err != nil {
			break
		}
		user := record.UserName
		if user == "" {
			user = record.UserID
		}
		return []string{key, "REACTION", "", user, record.Emoji}
	}
	return []string{key, "RAW", "", "", string(value)}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
