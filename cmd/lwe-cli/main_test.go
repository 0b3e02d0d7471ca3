package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/stretchr/testify/require"
)

type keyFiles struct {
	dir, pk, sk string
}

func keygen(t *testing.T, extra ...string) keyFiles {
	t.Helper()
	dir := t.TempDir()
	kf := keyFiles{
		dir: dir,
		pk:  filepath.Join(dir, "pk.json"),
		sk:  filepath.Join(dir, "sk.json"),
	}
	args := append([]string{"--public-out", kf.pk, "--secret-out", kf.sk}, extra...)
	var stdout, stderr bytes.Buffer
	require.NoError(t, handleKeygen(args, &stdout, &stderr))
	return kf
}

func TestKeygenVerboseHidesSecretVector(t *testing.T) {
	dir := t.TempDir()
	pkFile, skFile := filepath.Join(dir, "pk.json"), filepath.Join(dir, "sk.json")
	var stdout, stderr bytes.Buffer
	require.NoError(t, handleKeygen([]string{"--dim", "4", "--public-out", pkFile, "--secret-out", skFile, "-v"}, &stdout, &stderr))

	require.Contains(t, stderr.String(), "SecretKey{dimension: 4, modulus: ")
	require.NotContains(t, stderr.String(), "Vector")
}

func TestKeygenWritesSeparateFiles(t *testing.T) {
	kf := keygen(t, "--dim", "8", "--verbose")

	var pk PublicKeyExport
	require.NoError(t, readJSON(kf.pk, &pk))
	require.Equal(t, 8, pk.Dimension)
	require.Len(t, pk.Fingerprint, 64)

	var sk SecretKeyExport
	require.NoError(t, readJSON(kf.sk, &sk))
	require.Equal(t, pk.Fingerprint, sk.Fingerprint)
	require.NotEmpty(t, sk.KeyTag)

	raw, err := os.ReadFile(kf.pk)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret_key")

	info, err := os.Stat(kf.sk)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestKeygenRequiresOutputs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Error(t, handleKeygen([]string{"--dim", "4"}, &stdout, &stderr))
	require.Error(t, handleKeygen([]string{"--public-out", "a", "--secret-out", "a"}, &stdout, &stderr))
	require.Error(t, handleKeygen([]string{"--dim", "0", "--public-out", "a", "--secret-out", "b"}, &stdout, &stderr))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, format := range []string{"base64", "hex"} {
		t.Run(format, func(t *testing.T) {
			kf := keygen(t, "--dim", "16", "--format", format)
			ctFile := filepath.Join(kf.dir, "ct.json")
			message := "Hello World! こんにちは世界"

			var stdout, stderr bytes.Buffer
			err := handleEncrypt([]string{
				"--public-key", kf.pk, "--message", message, "--output", ctFile, "--format", format,
			}, strings.NewReader(""), &stdout, &stderr)
			require.NoError(t, err)

			var ct EncryptedExport
			require.NoError(t, readJSON(ctFile, &ct))
			require.Equal(t, len([]rune(message)), ct.Records)

			stdout.Reset()
			require.NoError(t, handleDecrypt([]string{"--secret-key", kf.sk, "--ciphertext", ctFile}, &stdout, &stderr))
			require.Equal(t, message+"\n", stdout.String())
		})
	}
}

func TestEncryptFromStdinAndFile(t *testing.T) {
	kf := keygen(t, "--level", "16")
	var stdout, stderr bytes.Buffer

	require.NoError(t, handleEncrypt([]string{"--public-key", kf.pk}, strings.NewReader("from stdin"), &stdout, &stderr))
	var ct EncryptedExport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &ct))
	require.Equal(t, 10, ct.Records)
	require.Equal(t, 16, ct.Dimension)

	input := filepath.Join(kf.dir, "msg.txt")
	require.NoError(t, os.WriteFile(input, []byte("from file"), 0600))
	ctFile := filepath.Join(kf.dir, "ct.json")
	require.NoError(t, handleEncrypt([]string{"--public-key", kf.pk, "--input", input, "--output", ctFile}, nil, &stdout, &stderr))

	out := filepath.Join(kf.dir, "plain.txt")
	require.NoError(t, handleDecrypt([]string{"--secret-key", kf.sk, "--ciphertext", ctFile, "--output", out}, &stdout, &stderr))
	plain, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "from file", string(plain))
}

func TestDecryptWithOtherKeyIsRejected(t *testing.T) {
	a := keygen(t, "--dim", "8")
	b := keygen(t, "--dim", "8")
	ctFile := filepath.Join(a.dir, "ct.json")

	var stdout, stderr bytes.Buffer
	require.NoError(t, handleEncrypt([]string{"--public-key", a.pk, "--message", "hi", "--output", ctFile}, nil, &stdout, &stderr))

	err := handleDecrypt([]string{"--secret-key", b.sk, "--ciphertext", ctFile}, &stdout, &stderr)
	require.ErrorContains(t, err, "encrypted for public key")
}

func TestCorruptedSecretKeyIsRejected(t *testing.T) {
	kf := keygen(t, "--dim", "4")

	var sk SecretKeyExport
	require.NoError(t, readJSON(kf.sk, &sk))
	sk.KeyTag = "AAAA" + sk.KeyTag[4:]
	data, err := json.Marshal(sk)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(kf.sk, data, 0600))

	_, _, err = loadSecretKey(kf.sk)
	require.ErrorContains(t, err, "integrity")
}

func TestInspect(t *testing.T) {
	kf := keygen(t, "--dim", "8")
	var stdout bytes.Buffer
	require.NoError(t, handleInspect([]string{"--secret-key", kf.sk, "--public-key", kf.pk}, &stdout))

	var report InspectReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Equal(t, 8, report.Noise.Dimension)
	require.Equal(t, 80, report.Noise.Rows)
	require.True(t, report.Noise.Sound())
	require.Nil(t, report.RoundTrips)

	require.Error(t, handleInspect([]string{"--secret-key", kf.sk}, &stdout))
}

func TestInspectRoundTripTrials(t *testing.T) {
	kf := keygen(t, "--dim", "4")
	var stdout bytes.Buffer
	require.NoError(t, handleInspect([]string{"--secret-key", kf.sk, "--public-key", kf.pk, "--trials", "5", "-m", "trial ✓"}, &stdout))

	var report InspectReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.NotNil(t, report.RoundTrips)
	require.Equal(t, 5, report.RoundTrips.Trials)
	require.Zero(t, report.RoundTrips.Failures)
	require.Zero(t, report.RoundTrips.Unsound)

	for _, bad := range []string{"0", "-2", "many"} {
		stdout.Reset()
		require.Error(t, handleInspect([]string{"--secret-key", kf.sk, "--public-key", kf.pk, "--trials", bad}, &stdout), bad)
	}
}

func TestBenchmark(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, handleBenchmark([]string{"--dim", "4", "--iterations", "2"}, &stdout))
	require.Contains(t, stdout.String(), "Benchmark complete!")

	require.Error(t, handleBenchmark([]string{"--iterations", "many"}, &stdout))
}

func TestParseConfig(t *testing.T) {
	config, err := parseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, 64, config.Params.Dimension)
	require.Equal(t, FormatBase64, config.OutputFormat)

	config, err = parseConfig([]string{"--level", "256", "-f", "hex", "-v", "-t"})
	require.NoError(t, err)
	require.Equal(t, lwe.LWE256, config.Params.Level)
	require.Equal(t, FormatHex, config.OutputFormat)
	require.True(t, config.Verbose)
	require.True(t, config.Timing)

	config, err = parseConfig([]string{"--level", "16", "--dim", "5"})
	require.NoError(t, err)
	require.Equal(t, 5, config.Params.Dimension)

	for _, args := range [][]string{
		{"--level", "128"},
		{"--dim", "abc"},
		{"--dim", "-1"},
		{"--format", "json"},
	} {
		_, err := parseConfig(args)
		require.Error(t, err, args)
	}
}

func TestDecodeString(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	got, err := decodeString(encodeBytes(data, FormatHex))
	require.NoError(t, err)
	require.Equal(t, data, got)

	got, err = decodeString(encodeBytes(data, FormatBase64))
	require.NoError(t, err)
	require.Equal(t, data, got)

	_, err = decodeString("not valid!")
	require.Error(t, err)
}

func TestPrintUsage(t *testing.T) {
	var out bytes.Buffer
	printUsage(&out)
	require.Contains(t, out.String(), "lwe-cli - error-tolerant text cipher CLI")
}
