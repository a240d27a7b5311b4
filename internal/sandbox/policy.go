package sandbox

// denyReadDirs are directories under $HOME denied read access in every
// host-exec sandbox: credentials, keys, and other secrets.
var denyReadDirs = []string{
	".ssh",
	".aws",
	".gnupg",
	".kube",
	".azure",
	".config/gcloud",
	".docker",
}

// denyReadFiles are individual files under $HOME denied read access,
// tracked separately from denyReadDirs because bwrap hides a file by
// bind-mounting /dev/null over it rather than tmpfs-shadowing a directory.
var denyReadFiles = []string{
	".npmrc",
	".pypirc",
	".netrc",
	".gem/credentials",
}

// denyReadPathsDarwin are macOS-specific absolute-under-HOME deny paths.
var denyReadPathsDarwin = []string{
	"Library/Keychains",
	"Library/Cookies",
	"Library/Application Support/Google/Chrome",
	"Library/Application Support/Firefox",
}

// allowWriteDirs are directories under $HOME left writable: caches and
// toolchain state a build needs to touch. Everything else under $HOME is
// write-denied.
var allowWriteDirs = []string{
	".cache",
	".cargo",
	".rustup",
	".npm",
	".local/state",
	".local/share/devbox",
}

// allowWriteDirsDarwin are macOS-specific writable paths.
var allowWriteDirsDarwin = []string{
	"Library/Caches",
	"Library/Logs",
}
