package main

import "github.com/DanilaBaxBax/wg-manager/cmd/wg-manager/cmd"

func main() {
	cmd.Execute()
}
