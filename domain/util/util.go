package util

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

func NanoTonString(nano int64) string {
	return fmt.Sprintf("%v TON", humanize.Commaf(float64(nano)/1000000000))
}

func NanoString(nano int64) string {
	return fmt.Sprintf("%v nano", humanize.Comma(nano))
}
