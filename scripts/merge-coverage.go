// Command merge-coverage concatenates Go coverage profiles into a single
// profile on stdout, keeping only the first mode line.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s file1.out file2.out [...]\n", os.Args[0])
		os.Exit(1)
	}

	wroteMode := false
	for _, filename := range os.Args[1:] {
		if err := appendProfile(filename, &wroteMode); err != nil {
			fmt.Fprintf(os.Stderr, "error reading %s: %v\n", filename, err)
			os.Exit(1)
		}
	}
}

func appendProfile(filename string, wroteMode *bool) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "mode:") {
			if !*wroteMode {
				fmt.Println(line)
				*wroteMode = true
			}
			continue
		}
		if line != "" {
			fmt.Println(line)
		}
	}
	return scanner.Err()
}
