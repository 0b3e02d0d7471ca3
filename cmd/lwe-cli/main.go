// Package main provides the lwe-cli command line interface for the text cipher.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/analysis"
	"github.com/BackendStack21/lwe-text-go/cipher"
	"github.com/BackendStack21/lwe-text-go/core"
	"github.com/BackendStack21/lwe-text-go/keys"
	"github.com/BackendStack21/lwe-text-go/utils"
	"golang.org/x/crypto/blake2b"
)

const (
	version = "0.4.0"
	appName = "lwe-cli"

	// MaxInputFileSize bounds every file the CLI reads.
	MaxInputFileSize = 256 * 1024 * 1024

	defaultTrialMessage = "Hello World! こんにちは世界 \U0001F980"
)

// OutputFormat represents the encoding of binary fields
type OutputFormat string

const (
	FormatHex    OutputFormat = "hex"
	FormatBase64 OutputFormat = "base64"
)

// CLIConfig holds CLI configuration
type CLIConfig struct {
	Params       lwe.Params
	OutputFormat OutputFormat
	OutputFile   string
	InputFile    string
	Verbose      bool
	Timing       bool
}

// PublicKeyExport represents an exported public key
type PublicKeyExport struct {
	Level       string `json:"level,omitempty"`
	Dimension   int    `json:"dimension"`
	PublicKey   string `json:"public_key"`
	Fingerprint string `json:"fingerprint"` // BLAKE3-256 of the public key bytes
	CreatedAt   string `json:"created_at"`
}

// SecretKeyExport represents an exported secret key. It is written to its
// own file and never bundled with the public key.
type SecretKeyExport struct {
	Level       string `json:"level,omitempty"`
	Dimension   int    `json:"dimension"`
	SecretKey   string `json:"secret_key"`
	Fingerprint string `json:"fingerprint"` // Fingerprint of the matching public key
	KeyTag      string `json:"key_tag"`     // Keyed BLAKE2b-256 for corruption detection
	CreatedAt   string `json:"created_at"`
}

// EncryptedExport represents an exported ciphertext
type EncryptedExport struct {
	Fingerprint string `json:"fingerprint"`
	Dimension   int    `json:"dimension"`
	Records     int    `json:"records"`
	Ciphertext  string `json:"ciphertext"`
}

// InspectReport is the output of the inspect command.
type InspectReport struct {
	Noise      *lwe.NoiseReport      `json:"noise"`
	RoundTrips *analysis.TrialResult `json:"round_trips,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	var err error
	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("lwe-text-go library version %s\n", lwe.Version)
	case "keygen":
		err = handleKeygen(args, os.Stdout, os.Stderr)
	case "encrypt", "enc":
		err = handleEncrypt(args, os.Stdin, os.Stdout, os.Stderr)
	case "decrypt", "dec":
		err = handleDecrypt(args, os.Stdout, os.Stderr)
	case "inspect":
		err = handleInspect(args, os.Stdout)
	case "benchmark":
		err = handleBenchmark(args, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `%s - error-tolerant text cipher CLI

USAGE:
    %s <COMMAND> [OPTIONS]

COMMANDS:
    keygen      Generate a secret key and derive its public key
    encrypt     Encrypt text with a public key
    decrypt     Decrypt a ciphertext with a secret key
    inspect     Report the noise hidden in a key pair
    benchmark   Time key generation, encryption and decryption
    version     Show version information
    help        Show this help message

OPTIONS:
    --level <16|64|256>     Parameter preset (default: 64)
    --dim <n>               Custom dimension (overrides --level)
    --public-key <file>     Public key export
    --secret-key <file>     Secret key export
    --public-out <file>     Where keygen writes the public key
    --secret-out <file>     Where keygen writes the secret key
    --message <text>        Message to encrypt (default: --input or stdin)
    --input <file>          Read the message from a file
    --ciphertext <file>     Ciphertext export to decrypt
    --output <file>         Output file (default: stdout)
    --format <hex|base64>   Binary encoding (default: base64)
    --iterations <n>        Benchmark iterations (default: 10)
    --trials <n>            Inspect: fresh key pairs to round-trip at the key's dimension
    --timing                Show timing information
    --verbose               Verbose output

EXAMPLES:
    %s keygen --dim 32 --public-out pk.json --secret-out sk.json
    %s encrypt --public-key pk.json --message "Hello World" --output ct.json
    %s decrypt --secret-key sk.json --ciphertext ct.json
    %s inspect --secret-key sk.json --public-key pk.json --trials 100
    %s benchmark --level 64 --iterations 10
`, appName, appName, appName, appName, appName, appName, appName)
}

// ============================================================================
// Commands
// ============================================================================

func handleKeygen(args []string, stdout, stderr io.Writer) error {
	config, err := parseConfig(args)
	if err != nil {
		return err
	}
	pkFile := getArg(args, "--public-out", "-po")
	skFile := getArg(args, "--secret-out", "-so")
	if pkFile == "" || skFile == "" {
		return errors.New("--public-out and --secret-out are required")
	}
	if pkFile == skFile {
		return errors.New("public and secret keys must be written to different files")
	}

	start := time.Now()
	sk, pk, err := keys.GenerateKeyPair(config.Params, utils.RandReader)
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}
	elapsed := time.Since(start)
	defer keys.Zeroize(sk)

	if config.Timing {
		fmt.Fprintf(stderr, "Key generation took: %v\n", elapsed)
	}

	pkBytes := keys.SerializePublicKey(pk)
	skBytes := keys.SerializeSecretKey(sk)
	fp := keys.Fingerprint(pk)
	created := time.Now().UTC().Format(time.RFC3339)

	pkExport := PublicKeyExport{
		Level:       string(config.Params.Level),
		Dimension:   pk.Dimension,
		PublicKey:   encodeBytes(pkBytes, config.OutputFormat),
		Fingerprint: hex.EncodeToString(fp[:]),
		CreatedAt:   created,
	}
	skExport := SecretKeyExport{
		Level:       string(config.Params.Level),
		Dimension:   sk.Dimension(),
		SecretKey:   encodeBytes(skBytes, config.OutputFormat),
		Fingerprint: hex.EncodeToString(fp[:]),
		CreatedAt:   created,
	}
	skExport.KeyTag, err = keyTag(fp[:], skBytes)
	if err != nil {
		return err
	}

	if err := writeJSON(pkExport, pkFile, stdout); err != nil {
		return err
	}
	if err := writeJSON(skExport, skFile, stdout); err != nil {
		return err
	}

	if config.Verbose {
		fmt.Fprintf(stderr, "Generated %v\n", sk)
		fmt.Fprintf(stderr, "Fingerprint: %s\n", pkExport.Fingerprint)
		fmt.Fprintf(stderr, "Public key size: %d bytes\n", len(pkBytes))
		fmt.Fprintf(stderr, "Secret key size: %d bytes\n", len(skBytes))
	}
	return nil
}

func handleEncrypt(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	config, err := parseConfig(args)
	if err != nil {
		return err
	}
	pkFile := getArg(args, "--public-key", "-pk")
	if pkFile == "" {
		return errors.New("--public-key is required")
	}

	message, err := readMessage(args, config, stdin)
	if err != nil {
		return err
	}

	pk, fp, err := loadPublicKey(pkFile)
	if err != nil {
		return err
	}

	start := time.Now()
	ctBytes, err := cipher.Encrypt(pk, message)
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}
	elapsed := time.Since(start)

	if config.Timing {
		fmt.Fprintf(stderr, "Encryption took: %v\n", elapsed)
	}

	export := EncryptedExport{
		Fingerprint: fp,
		Dimension:   pk.Dimension,
		Records:     len(ctBytes) / (pk.Width() * 4),
		Ciphertext:  encodeBytes(ctBytes, config.OutputFormat),
	}
	if err := writeJSON(export, config.OutputFile, stdout); err != nil {
		return err
	}

	if config.Verbose {
		fmt.Fprintf(stderr, "Encryption successful\n")
		fmt.Fprintf(stderr, "Characters: %d\n", export.Records)
		fmt.Fprintf(stderr, "Ciphertext size: %d bytes\n", len(ctBytes))
	}
	return nil
}

func handleDecrypt(args []string, stdout, stderr io.Writer) error {
	config, err := parseConfig(args)
	if err != nil {
		return err
	}
	skFile := getArg(args, "--secret-key", "-sk")
	ctFile := getArg(args, "--ciphertext", "-ct")
	if skFile == "" || ctFile == "" {
		return errors.New("--secret-key and --ciphertext are required")
	}

	sk, skExport, err := loadSecretKey(skFile)
	if err != nil {
		return err
	}
	defer keys.Zeroize(sk)

	var export EncryptedExport
	if err := readJSON(ctFile, &export); err != nil {
		return fmt.Errorf("loading ciphertext: %w", err)
	}
	if export.Fingerprint != "" && export.Fingerprint != skExport.Fingerprint {
		return fmt.Errorf("ciphertext was encrypted for public key %s, secret key matches %s", export.Fingerprint, skExport.Fingerprint)
	}
	ctBytes, err := decodeString(export.Ciphertext)
	if err != nil {
		return fmt.Errorf("decoding ciphertext: %w", err)
	}

	start := time.Now()
	text, err := cipher.Decrypt(sk, ctBytes)
	if err != nil {
		return fmt.Errorf("decrypting: %w", err)
	}
	elapsed := time.Since(start)

	if config.Timing {
		fmt.Fprintf(stderr, "Decryption took: %v\n", elapsed)
	}
	if n := cipher.CountPlaceholders(text); n > 0 {
		fmt.Fprintf(stderr, "Warning: %d characters could not be recovered\n", n)
	}

	if config.OutputFile != "" {
		return writeFile(config.OutputFile, []byte(text))
	}
	fmt.Fprintln(stdout, text)
	return nil
}

func handleInspect(args []string, stdout io.Writer) error {
	config, err := parseConfig(args)
	if err != nil {
		return err
	}
	skFile := getArg(args, "--secret-key", "-sk")
	pkFile := getArg(args, "--public-key", "-pk")
	if skFile == "" || pkFile == "" {
		return errors.New("--secret-key and --public-key are required")
	}

	sk, _, err := loadSecretKey(skFile)
	if err != nil {
		return err
	}
	defer keys.Zeroize(sk)
	pk, _, err := loadPublicKey(pkFile)
	if err != nil {
		return err
	}

	report, err := analysis.AnalyzeNoise(sk, pk)
	if err != nil {
		return err
	}
	out := InspectReport{Noise: report}

	if s := getArg(args, "--trials", "-n"); s != "" {
		trials, err := strconv.Atoi(s)
		if err != nil || trials < 1 {
			return fmt.Errorf("invalid --trials %q", s)
		}
		message := getArg(args, "--message", "-m")
		if message == "" {
			message = defaultTrialMessage
		}
		out.RoundTrips, err = analysis.RoundTripTrials(core.DefaultParams(sk.Dimension()), message, trials, utils.RandReader)
		if err != nil {
			return fmt.Errorf("round trip trials: %w", err)
		}
	}
	return writeJSON(out, config.OutputFile, stdout)
}

func handleBenchmark(args []string, stdout io.Writer) error {
	config, err := parseConfig(args)
	if err != nil {
		return err
	}
	iterations := 10
	if s := getArg(args, "--iterations", "-n"); s != "" {
		iterations, err = strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid --iterations %q", s)
		}
	}
	if iterations < 1 {
		iterations = 1
	}

	fmt.Fprintf(stdout, "lwe-text-go Benchmark Results\n")
	fmt.Fprintf(stdout, "=============================\n")
	fmt.Fprintf(stdout, "Dimension: %d\n", config.Params.Dimension)
	fmt.Fprintf(stdout, "Iterations: %d\n\n", iterations)

	message := strings.Repeat("Hello, lattice! こんにちは ", 20)

	var keygenTotal, deriveTotal, encryptTotal, decryptTotal time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		sk, err := keys.GenerateSecretWithParams(config.Params, utils.RandReader)
		keygenTotal += time.Since(start)
		if err != nil {
			return fmt.Errorf("keygen: %w", err)
		}

		start = time.Now()
		pk, err := keys.DerivePublicWithParams(sk, config.Params, utils.RandReader)
		deriveTotal += time.Since(start)
		if err != nil {
			return fmt.Errorf("derive: %w", err)
		}

		start = time.Now()
		ct, err := cipher.Encrypt(pk, message)
		encryptTotal += time.Since(start)
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}

		start = time.Now()
		text, err := cipher.Decrypt(sk, ct)
		decryptTotal += time.Since(start)
		if err != nil {
			return fmt.Errorf("decrypt: %w", err)
		}
		if text != message {
			return errors.New("round trip mismatch")
		}
	}

	avg := func(d time.Duration) time.Duration { return d / time.Duration(iterations) }
	fmt.Fprintf(stdout, "  GenerateSecret: %v (avg)\n", avg(keygenTotal))
	fmt.Fprintf(stdout, "  DerivePublic:   %v (avg)\n", avg(deriveTotal))
	fmt.Fprintf(stdout, "  Encrypt:        %v (avg, %d chars)\n", avg(encryptTotal), len([]rune(message)))
	fmt.Fprintf(stdout, "  Decrypt:        %v (avg)\n", avg(decryptTotal))
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Benchmark complete!")
	return nil
}

// ============================================================================
// Utility Functions
// ============================================================================

func parseConfig(args []string) (CLIConfig, error) {
	config := CLIConfig{
		Params:       core.LWE64Params,
		OutputFormat: FormatBase64,
	}

	level := getArg(args, "--level", "-l")
	switch level {
	case "16", string(lwe.LWE16):
		config.Params = core.LWE16Params
	case "64", string(lwe.LWE64):
		config.Params = core.LWE64Params
	case "256", string(lwe.LWE256):
		config.Params = core.LWE256Params
	case "":
		// No level specified, use default
	default:
		return config, fmt.Errorf("invalid level '%s'. Must be one of: 16, 64, 256", level)
	}

	if dim := getArg(args, "--dim", "-d"); dim != "" {
		n, err := strconv.Atoi(dim)
		if err != nil {
			return config, fmt.Errorf("invalid --dim %q", dim)
		}
		if err := core.ValidateDimension(n); err != nil {
			return config, err
		}
		config.Params = core.DefaultParams(n)
	}

	format := getArg(args, "--format", "-f")
	switch format {
	case "hex":
		config.OutputFormat = FormatHex
	case "base64":
		config.OutputFormat = FormatBase64
	case "":
		// No format specified, use default
	default:
		return config, fmt.Errorf("invalid format '%s'. Must be one of: hex, base64", format)
	}

	config.OutputFile = getArg(args, "--output", "-o")
	config.InputFile = getArg(args, "--input", "-i")
	config.Verbose = hasFlag(args, "--verbose", "-v")
	config.Timing = hasFlag(args, "--timing", "-t")

	return config, nil
}

func getArg(args []string, long, short string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == long || args[i] == short {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, long, short string) bool {
	for _, arg := range args {
		if arg == long || arg == short {
			return true
		}
	}
	return false
}

func readMessage(args []string, config CLIConfig, stdin io.Reader) (string, error) {
	if message := getArg(args, "--message", "-m"); message != "" {
		return message, nil
	}
	if config.InputFile != "" {
		data, err := readFile(config.InputFile)
		if err != nil {
			return "", fmt.Errorf("reading input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, MaxInputFileSize))
	if err != nil {
		return "", fmt.Errorf("reading from stdin: %w", err)
	}
	return string(data), nil
}

// keyTag computes a BLAKE2b-256 MAC over the secret key bytes, keyed with the
// public key fingerprint. It detects accidental corruption only: the
// fingerprint is public, so anyone can recompute a valid tag.
func keyTag(fingerprint, skBytes []byte) (string, error) {
	h, err := blake2b.New256(fingerprint)
	if err != nil {
		return "", err
	}
	h.Write(skBytes)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func loadPublicKey(filename string) (*lwe.PublicKey, string, error) {
	var export PublicKeyExport
	if err := readJSON(filename, &export); err != nil {
		return nil, "", fmt.Errorf("loading public key: %w", err)
	}
	data, err := decodeString(export.PublicKey)
	if err != nil {
		return nil, "", fmt.Errorf("decoding public key: %w", err)
	}
	pk, err := keys.DeserializePublicKey(data)
	if err != nil {
		return nil, "", fmt.Errorf("deserializing public key: %w", err)
	}
	fp := keys.Fingerprint(pk)
	fpHex := hex.EncodeToString(fp[:])
	if export.Fingerprint != "" && export.Fingerprint != fpHex {
		return nil, "", errors.New("public key fingerprint mismatch: file is corrupted")
	}
	return pk, fpHex, nil
}

func loadSecretKey(filename string) (*lwe.SecretKey, *SecretKeyExport, error) {
	var export SecretKeyExport
	if err := readJSON(filename, &export); err != nil {
		return nil, nil, fmt.Errorf("loading secret key: %w", err)
	}
	data, err := decodeString(export.SecretKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding secret key: %w", err)
	}
	if export.KeyTag != "" {
		fp, err := hex.DecodeString(export.Fingerprint)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding fingerprint: %w", err)
		}
		want, err := keyTag(fp, data)
		if err != nil {
			return nil, nil, err
		}
		if want != export.KeyTag {
			return nil, nil, errors.New("secret key integrity check failed: file is corrupted")
		}
	}
	sk, err := keys.DeserializeSecretKey(data)
	if err != nil {
		return nil, nil, fmt.Errorf("deserializing secret key: %w", err)
	}
	return sk, &export, nil
}

func encodeBytes(data []byte, format OutputFormat) string {
	switch format {
	case FormatHex:
		return hex.EncodeToString(data)
	default:
		return base64.StdEncoding.EncodeToString(data)
	}
}

func decodeString(s string) ([]byte, error) {
	// Hex first: every hex string of length 4k is also valid base64.
	if data, err := hex.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return nil, fmt.Errorf("unable to decode string")
}

func readFile(filename string) ([]byte, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxInputFileSize {
		return nil, fmt.Errorf("input file too large: %d > %d bytes", info.Size(), MaxInputFileSize)
	}
	return os.ReadFile(filename)
}

func readJSON(filename string, v interface{}) error {
	data, err := readFile(filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(v interface{}, filename string, stdout io.Writer) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	if filename == "" {
		_, err = fmt.Fprintln(stdout, string(output))
		return err
	}
	return writeFile(filename, output)
}

// writeFile creates the file owner-only (0600); it may hold key material.
func writeFile(filename string, data []byte) error {
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	// Enforce permissions even if umask is permissive
	return os.Chmod(filename, 0600)
}
