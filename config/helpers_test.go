package config

import (
	"os"
	"testing"
)

// withCleanEnv clears the environment, sets the required variables plus
// extra, and returns a cleanup function that restores the original env.
// Use with t.Cleanup().
func withCleanEnv(t *testing.T, extra map[string]string) func() {
	t.Helper()

	originalEnv := os.Environ()
	os.Clearenv()

	os.Setenv("SUPABASE_URL", "https://project.supabase.co")
	os.Setenv("SUPABASE_API_KEY", "anon-key")
	os.Setenv("SESSIONS_SECRET", "s3cret")

	for key, value := range extra {
		os.Setenv(key, value)
	}

	return func() {
		os.Clearenv()
		for _, env := range originalEnv {
			for i := 0; i < len(env); i++ {
				if env[i] == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}
}
