package banner

import "github.com/fatih/color"

// Version is the release shown in the banner.
const Version = "1.0"

func GetBanner() string {
	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	banner := `
` + cyan(`
 ▄▄▄▄▄ ▄ .▄ ▄▄▄· ·▄▄▄▄        ▄▄▌ ▐ ▄▌▐▄• ▄
▐█ ▀. ██▪▐█▐█ ▀█ ██▪ ██ ▪     ██· █▌▐█ █▌█▌▪
▄▀▀▀█▄██▀▐█▄█▀▀█ ▐█· ▐█▌ ▄█▀▄ ██▪▐█▐▐▌ ·██·
▐█▄▪▐███▌▐▀▐█ ▪▐▌██. ██ ▐█▌.▐▌▐█▌██▐█▌▪▐█·█▌
 ▀▀▀▀ ▀▀▀ · ▀  ▀ ▀▀▀▀▀•  ▀█▄▀▪ ▀▀▀▀ ▀▪•▀▀ ▀▀
`) + `
          ` + red(`ShadowX - Browser-Verified XSS Scanner v`+Version) + `
                   ` + yellow(`by @Serdar715`) + `

` + cyan(`━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━`) + `
  ` + yellow(`Verification:`) + `
    • Unique marker per test
    • Alert, console and DOM evidence
    • Context-aware classification
    • Blind XSS callback correlation
` + cyan(`━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━`) + `
`
	return banner
}
