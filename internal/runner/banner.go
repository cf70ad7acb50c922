package runner

import (
	"github.com/projectdiscovery/gologger"
	updateutils "github.com/projectdiscovery/utils/update"
)

var banner = (`
               _     _            _
  ___ _ __ ___| |__ | | ___   ___| | __
 / _ \ '__/ _ \ '_ \| |/ _ \ / __| |/ /
|  __/ | |  __/ |_) | | (_) | (__|   <
 \___|_|  \___|_.__/|_|\___/ \___|_|\_\
`)

var version = "v0.0.1"

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tprojectdiscovery.io\n\n")
}

// GetUpdateCallback returns a callback function that updates erblock
func GetUpdateCallback() func() {
	return func() {
		showBanner()
		updateutils.GetUpdateToolCallback("erblock", version)()
	}
}
