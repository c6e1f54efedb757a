package utils

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ReadWordFile loads a dictionary file. ".csv" files hold "word,count" rows
// (rows with a bad count are skipped); anything else is one word per line.
func ReadWordFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read word file %s: %w", filePath, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(filePath), ".csv") {
		return readCsvWords(f, filePath)
	}

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" && !strings.HasPrefix(w, "#") {
			words = append(words, strings.ToLower(w))
		}
	}
	return words, sc.Err()
}

func readCsvWords(f *os.File, filePath string) ([]string, error) {
	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse file as CSV for %s: %w", filePath, err)
	}

	var words []string
	for _, record := range records {
		if len(record) < 2 {
			log.Debug().Strs("record", record).Msg("skipping invalid record")
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(record[1])); err != nil {
			log.Debug().Str("count", record[1]).Strs("record", record).Msg("invalid count value")
			continue
		}
		words = append(words, strings.ToLower(strings.TrimSpace(record[0])))
	}

	return words, nil
}
