package cmd

import (
	"fmt"
)

const banner = `
  _____
 |  __ \
 | |  | | ___   ___  _ __ _ __ ___   __ _ _ __
 | |  | |/ _ \ / _ \| '__| '_ ` + "`" + ` _ \ / _` + "`" + ` | '_ \
 | |__| | (_) | (_) | |  | | | | | | (_| | | | |
 |_____/ \___/ \___/|_|  |_| |_| |_|\__,_|_| |_|

`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Two-Factor Authentication Service - Version %s\x1b[0m\n\n", Version)
}
