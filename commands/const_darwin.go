package commands

const (
	_var = "/usr/local/var/com.github.dailyplan"

	DEFAULT_WORKDIR = _var
)

var opener = []string{"open"}
