// cmd/genhash/main.go: Imprime el hash bcrypt de un codigo de cierre de caja.
// Uso: go run ./cmd/genhash 4821
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 || len(os.Args[1]) < 4 {
		fmt.Fprintln(os.Stderr, "uso: genhash <codigo de al menos 4 caracteres>")
		os.Exit(2)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), 12)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(h))
}
