package config

// Server defaults. 35729 is the port LiveReload browser extensions expect.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 35729
)

// defaultRegexpExcludes are matched against the whole root-relative path.
var defaultRegexpExcludes = []string{
	`(.*/)?\.git/.*`,
	`(.*/)?\.(svn|hg)/.*`,
	`(.*/)?node_modules/.*`,
	`(.*/)?\.(idea|vscode)/.*`,
	`(.*/)?\.DS_Store`,
	`(.*/)?Thumbs\.db`,
	`.*\.(swp|swo|swx|tmp)`,
	`.*~`,
	`(.*/)?#[^/]*#`,
}

// defaultGlobExcludes mirror defaultRegexpExcludes in glob syntax.
var defaultGlobExcludes = []string{
	"{.git,**/.git}/**",
	"{.svn,.hg,**/.svn,**/.hg}/**",
	"{node_modules,**/node_modules}/**",
	"{.idea,.vscode,**/.idea,**/.vscode}/**",
	"{.DS_Store,**/.DS_Store}",
	"{Thumbs.db,**/Thumbs.db}",
	"**.{swp,swo,swx,tmp}",
	"**~",
	"{#*#,**/#*#}",
}

// DefaultExcludePatterns returns the built-in exclusions for syntax. They
// cover editor scratch files and directories nobody edits by hand.
func DefaultExcludePatterns(syntax string) []string {
	src := defaultRegexpExcludes
	if syntax == "glob" {
		src = defaultGlobExcludes
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
