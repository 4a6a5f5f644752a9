// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hello is the owner of the methods in example/hello.yaml. cmdr exec
// runs it with the method name as its argument and the bound values in
// CMDR_ARG_* variables.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatal("usage: hello METHOD")
	}
	name := os.Getenv("CMDR_ARG_NAME")
	if name == "" {
		name = "friend"
	}
	switch os.Args[1] {
	case "Greet":
		times, err := strconv.Atoi(os.Getenv("CMDR_ARG_TIMES"))
		if err != nil {
			log.Fatalf("bad CMDR_ARG_TIMES: %v", err)
		}
		msg := "Hello, " + name + "!"
		if os.Getenv("CMDR_ARG_SHOUT") == "true" {
			msg = strings.ToUpper(msg)
		}
		for range times {
			fmt.Println(msg)
		}
	case "Farewell":
		fmt.Printf("Goodbye, %s.\n", name)
	default:
		log.Fatalf("unknown method %q", os.Args[1])
	}
}
