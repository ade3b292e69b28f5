package sizes

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type Size struct {
	Code  string
	Label string
	Order int
}

var defaultSizes = []Size{
	{Code: "PP", Label: "PP", Order: 10},
	{Code: "P", Label: "P", Order: 20},
	{Code: "M", Label: "M", Order: 30},
	{Code: "G", Label: "G", Order: 40},
	{Code: "GG", Label: "GG", Order: 50},
	{Code: "XG", Label: "XG", Order: 60},
	{Code: "EXG", Label: "EXG", Order: 70},
	{Code: "U", Label: "Tamanho único", Order: 100},
}

var (
	mu          sync.RWMutex
	internalMap = buildMap(defaultSizes)
)

func buildMap(list []Size) map[string]Size {
	m := make(map[string]Size, len(list))
	for _, s := range list {
		m[strings.ToUpper(s.Code)] = s
	}
	return m
}

// LoadFile replaces the size table with a code,label,order CSV. Bra band
// sizes such as 40 or 42B need no entry: any code starting with a digit is
// accepted and ordered numerically after the letter sizes.
func LoadFile(path string) (map[string]Size, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	var list []Size
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("LoadFile: read %s: %w", path, err)
		}
		if len(record) < 2 || strings.EqualFold(record[0], "code") {
			continue
		}
		s := Size{Code: strings.ToUpper(strings.TrimSpace(record[0])), Label: strings.TrimSpace(record[1])}
		if len(record) > 2 {
			s.Order, _ = strconv.Atoi(strings.TrimSpace(record[2]))
		}
		list = append(list, s)
	}

	m := buildMap(list)
	mu.Lock()
	internalMap = m
	mu.Unlock()
	return m, nil
}

// Reset restores the built-in size table.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	internalMap = buildMap(defaultSizes)
}

func isNumeric(code string) bool {
	return code != "" && code[0] >= '0' && code[0] <= '9'
}

// Valid reports whether code is a known letter size or a numeric size.
func Valid(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if isNumeric(code) {
		return true
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := internalMap[code]
	return ok
}

// ResolveLabel converts a size code to its display label.
func ResolveLabel(code string) string {
	mu.RLock()
	defer mu.RUnlock()
	if s, ok := internalMap[strings.ToUpper(code)]; ok {
		return s.Label
	}
	return code
}

func rank(code string) (int, int, string) {
	code = strings.ToUpper(code)
	mu.RLock()
	s, ok := internalMap[code]
	mu.RUnlock()
	if ok {
		return 0, s.Order, code
	}
	if isNumeric(code) {
		n := 0
		for _, r := range code {
			if r < '0' || r > '9' {
				break
			}
			n = n*10 + int(r-'0')
		}
		return 1, n, code
	}
	return 2, 0, code
}

// Less orders letter sizes by table order, then numeric sizes by number,
// then unknown codes alphabetically.
func Less(a, b string) bool {
	ga, oa, ca := rank(a)
	gb, ob, cb := rank(b)
	if ga != gb {
		return ga < gb
	}
	if oa != ob {
		return oa < ob
	}
	return ca < cb
}

// Sort orders codes in place with Less.
func Sort(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool { return Less(codes[i], codes[j]) })
}
