package util

// Configuration is the resolved runtime configuration: build metadata,
// command-line flags and the project config file merged together.
type Configuration struct {
	Version   string
	BuildDate string
	Commit    string

	RootPath    string
	SearchPaths []string // extra module roots, searched after the root defaults
	StdlibDSN   string   // driver:dsn of the SQL stdlib registry, "" for none
	LoqHome     string

	LogLevel string
	LogFile  string

	DebugAST bool
	Watch    bool
	NoColor  bool
}

// Apply merges a project config into c. Flags win: the project's stdlib
// database is only used when none was given, and its search paths follow
// the ones already set.
func (c *Configuration) Apply(p *ProjectConfig) {
	if p == nil {
		return
	}
	c.SearchPaths = append(c.SearchPaths, p.SearchPaths...)
	if c.StdlibDSN == "" {
		c.StdlibDSN = p.StdlibDB
	}
}
