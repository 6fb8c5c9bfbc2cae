package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (default ~/.config/rankscope/config.yaml)" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// AnalyzeCommand classifies an export and rolls matched traffic up by path.
type AnalyzeCommand struct {
	URLColumn     string   `long:"url-column" description:"Column holding the ranking URL"`
	TrafficColumn string   `long:"traffic-column" description:"Column holding the traffic value"`
	KeywordColumn string   `long:"keyword-column" description:"Column holding the translated keyword"`
	URLPath       *string  `long:"url-path" description:"Substring to look for in the URL (empty disables the URL criterion)"`
	Keywords      *string  `long:"keywords" description:"Comma-separated keywords to look for in the keyword column"`
	MinTraffic    *float64 `long:"min-traffic" description:"Drop matched rows with less traffic than this"`
	Out           string   `long:"out" description:"Write the filtered rows to this .xlsx or .csv file"`
	PathsOut      string   `long:"paths-out" description:"Write the subfolder tables to this .xlsx file"`
	SQLite        string   `long:"sqlite" description:"Also write the report to this SQLite database"`
	Top           int      `long:"top" description:"Subfolders to print per table (0 = all)" default:"20"`

	globals *GlobalFlags
	version string
}

// ColumnsCommand lists an export's columns and the resolved column roles.
type ColumnsCommand struct {
	globals *GlobalFlags
	version string
}

// PreviewCommand prints the first rows of an export.
type PreviewCommand struct {
	Rows int `long:"rows" description:"Number of rows to show" default:"10"`

	globals *GlobalFlags
	version string
}

// ServeCommand runs the local HTTP upload API.
type ServeCommand struct {
	Host string `long:"host" description:"Override server host"`
	Port int    `long:"port" description:"Override server port"`

	globals *GlobalFlags
	version string
}
