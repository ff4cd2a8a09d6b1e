//go:build !windows

package detect

func platformProbe() OSProbe {
	return nil
}
