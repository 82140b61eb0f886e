// Package banner renders the startup banner.
package banner

import "fmt"

const art = `
 _ __   ___ _ __ _____   ____ _| |
| '_ \ / _ \ '__/ _ \ \ / / _' | |
| | | |  __/ | |  __/\ V / (_| | |
|_| |_|\___|_|  \___| \_/ \__,_|_|
`

// Banner returns the startup banner with the version string.
func Banner(version string) string {
	return fmt.Sprintf("%s      CoNLL NER evaluation %s\n\n", art, version)
}
