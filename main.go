/*
Copyright © 2026 JACOB ARTHURS
*/
package main

import "sqlsage/cmd"

func main() {
	cmd.Execute()
}
