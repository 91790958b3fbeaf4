// Command linkrank crawls a link graph and ranks its pages.
package main

import "github.com/JakeFAU/linkrank/cmd"

func main() {
	cmd.Execute()
}
