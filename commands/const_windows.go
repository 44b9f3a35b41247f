package commands

const (
	_var = `C:\ProgramData\dailyplan`

	DEFAULT_WORKDIR = _var
)

var opener = []string{"rundll32", "url.dll,FileProtocolHandler"}
