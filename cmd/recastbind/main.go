// Command recastbind builds the recastnavigation native libraries for the
// invoking build and generates their bindings.
package main

import "github.com/goplus/recastbind/cmd/recastbind/internal"

func main() {
	internal.Execute()
}
