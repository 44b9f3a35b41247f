package commands

const (
	_var = "/usr/local/var/dailyplan"

	DEFAULT_WORKDIR = _var
)

var opener = []string{"xdg-open"}
