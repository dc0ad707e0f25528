// Command schedulectl manages the busboard database from the shell: schema
// migrations, timetable imports and the built-in seed timetables.
package main

import (
	"fmt"
	"os"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
