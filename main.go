package main

import (
	"github.com/l3nnardwlg/echoboard/cmd/server"
)

func main() {
	server.NewServer().Run()
}
