package ir

// LoaderFunc turns a filtered source map into partial artifact
// definitions. Loaders are synchronous; a failing loader aborts the
// whole pipeline.
type LoaderFunc func(sources SourceMap, options map[string]any, env *Environment) (Artifacts, error)

// PluginContext is handed to each output plugin. Output is the running
// serialized document; each plugin's return value replaces it.
type PluginContext struct {
	Output      string
	Config      any
	BaseRecords Records
	Records     Records
	Environment *Environment
}

// PluginFunc transforms the serialized output string.
type PluginFunc func(pctx *PluginContext) (string, error)
