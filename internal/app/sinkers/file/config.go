package file

// Configuration settings for file sinking
type Configuration struct {
	Folder       string `toml:"folder" default:"log" comment:"output folder"`
	Outputraw    string `toml:"outputraw" default:"tracks.log" comment:"output file name for the live tracks"`
	Outputreport string `toml:"outputreport" default:"report.log" comment:"output file name for the statistics report"`
}
