package sieve

import "strconv"

// Path locates a value inside a decoded or encoded document.
// The format follows JSONPath: $.items[0].name
type Path string

// Root is the path of the top-level document.
const Root Path = "$"

// Field returns the path of the named member of p.
func (p Path) Field(name string) Path {
	return p + "." + Path(name)
}

// Index returns the path of element i of p.
func (p Path) Index(i int) Path {
	return p + "[" + Path(strconv.Itoa(i)) + "]"
}

// Key returns the path of map entry key of p.
func (p Path) Key(key string) Path {
	return p.Field(key)
}

func (p Path) String() string {
	return string(p)
}
