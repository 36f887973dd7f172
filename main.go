package main

import "github.com/ubuntupunk/muizedroid/cmd"

func main() {
	cmd.Execute()
}
