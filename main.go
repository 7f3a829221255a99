package main

import "snapgram-backend/cmd"

func main() {
	cmd.Run()
}
