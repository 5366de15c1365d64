package main

import (
	"fmt"

	"github.com/hirelight/room-events-service/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
