package types

// JSONMap is a loosely typed jsonb column.
type JSONMap map[string]any
