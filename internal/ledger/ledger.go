package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// Ledger is the durable set of raw endpoint strings known to work. It is
// backed by an append-only newline-delimited file that is read in full on
// every lookup. All access goes through one mutex so a check followed by an
// append is atomic with respect to other goroutines in the process.
type Ledger struct {
	path string
	mu   sync.Mutex
}

func Open(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) Path() string { return l.path }

// Contains reports whether raw is already recorded.
func (l *Ledger) Contains(raw string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contains(strings.TrimSpace(raw))
}

// Record appends raw unless it is already present. It reports whether the
// entry existed before the call.
func (l *Ledger) Record(raw string) (existed bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "\r\n") {
		return false, fmt.Errorf("ledger: invalid entry %q", raw)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existed, err = l.contains(raw)
	if err != nil || existed {
		return existed, err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	if _, err := f.WriteString(raw + "\n"); err != nil {
		f.Close()
		return false, err
	}
	return false, f.Close()
}

// Entries returns every recorded line in file order.
func (l *Ledger) Entries() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	err := l.scan(func(line string) bool {
		out = append(out, line)
		return true
	})
	return out, err
}

func (l *Ledger) contains(raw string) (bool, error) {
	found := false
	err := l.scan(func(line string) bool {
		found = line == raw
		return !found
	})
	return found, err
}

func (l *Ledger) scan(fn func(line string) bool) error {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// share links can be long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !fn(line) {
			return nil
		}
	}
	return scanner.Err()
}
