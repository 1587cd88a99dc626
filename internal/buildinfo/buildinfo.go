package buildinfo

const Graffiti = "______  _____  _____ \n|  _  \\/  __ \\/  ___|\n| | | || /  \\/\\ `--. \n| | | || |     `--. \\\n| |/ / | \\__/\\/\\__/ /\n|___/   \\____/\\____/ \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "DCS"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
