package validate

import "regexp"

// Schedulers is the supported scheduler enumeration. Extendable: appended
// entries take effect everywhere the enum is checked.
var Schedulers = []string{"sge", "slurm", "torque", "awsbatch"}

// BaseOSes is the supported operating system enumeration.
var BaseOSes = []string{"alinux", "alinux2", "centos7", "centos8", "ubuntu1604", "ubuntu1804"}

// awsBatchOSes are the operating systems the awsbatch scheduler supports.
var awsBatchOSes = map[string]bool{"alinux": true, "alinux2": true}

// Root volume bounds in GiB imposed by the provider.
const (
	MinRootVolumeGiB = 20
	MaxRootVolumeGiB = 16384
)

// Provider resource-ID patterns: fixed prefix plus an 8 or 17 character
// lowercase hex suffix.
var (
	vpcIDPattern    = regexp.MustCompile(`^vpc-([0-9a-f]{8}|[0-9a-f]{17})$`)
	subnetIDPattern = regexp.MustCompile(`^subnet-([0-9a-f]{8}|[0-9a-f]{17})$`)
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
