package domain

// CatalogData is the decoded static catalog: pools keyed by path string,
// route topology keyed by "FROM/TO", tokens keyed by name.
type CatalogData struct {
	Network    string
	Pools      map[string]Pool
	Routes     map[string][]Route
	Tokens     map[string]TokenInfo
	ProgramIDs ProgramIDs
}
