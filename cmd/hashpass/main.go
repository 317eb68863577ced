// Command hashpass reads a password from stdin and prints the bcrypt hash to
// use as BANK_ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"bankfsm.org/internal/auth"
	"bankfsm.org/internal/obs"
)

func main() {
	log := obs.Logger()

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Fatal("read password", zap.Error(err))
	}
	hash, err := auth.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		log.Fatal("hash password", zap.Error(err))
	}
	fmt.Println(hash)
}
