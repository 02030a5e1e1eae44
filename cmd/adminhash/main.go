package main

import (
	"bufio"
	"fmt"
	"nibog/shared/logger"
	"nibog/shared/password"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Reads the admin password from stdin and prints the value for ADMIN_PASSWORD_HASH.
//
//	echo -n 'secret' | go run ./cmd/adminhash
func main() {
	logger.InitLogger()

	reader := bufio.NewReader(os.Stdin)

	plain, err := reader.ReadString('\n')
	if err != nil && plain == "" {
		log.Fatal().Err(err).Msg("Failed to read password from stdin")
	}

	hash, err := password.Hash(strings.TrimRight(plain, "\r\n"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Println(hash) //nolint:forbidigo
}
