package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

// dateArg resolves the optional date argument: empty or "today", "yesterday",
// or YYYY-MM-DD.
func dateArg(args []string, now time.Time) (string, error) {
	if len(args) == 0 {
		return now.Format(common.DateLayout), nil
	}
	switch strings.ToLower(args[0]) {
	case "today":
		return now.Format(common.DateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(common.DateLayout), nil
	}
	if _, err := journal.ParseDate(args[0]); err != nil {
		return "", err
	}
	return args[0], nil
}

// monthArg resolves the optional YYYY-MM argument, defaulting to the
// current month.
func monthArg(args []string, now time.Time) (int, time.Month, error) {
	if len(args) == 0 {
		return now.Year(), now.Month(), nil
	}
	return journal.ParseMonth(args[0])
}

func yearArg(args []string, now time.Time) (int, error) {
	if len(args) == 0 {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(args[0])
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("%w: year %q", common.ErrInvalidDate, args[0])
	}
	return y, nil
}
