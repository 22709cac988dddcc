package main

import "github.com/withobsrvr/crawlersetup/cmd"

func main() {
	cmd.Execute()
}
