package collect

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/platform9/pcddebug/pkg/archive"
)

const dbConfigYAML = `customers:
  cust-1:
    regions:
      region-1:
        dbserver: percona-1
`

const dbServerYAML = `customers:
  cust-1:
    dbservers:
      percona-1:
        admin_pass: s3cret
`

func TestParseDBServer(t *testing.T) {
	server, customer, err := parseDBServer([]byte(dbConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "percona-1", server)
	assert.Equal(t, "cust-1", customer)
}

func TestParseDBServerMissing(t *testing.T) {
	_, _, err := parseDBServer([]byte("customers: {}\n"))
	require.Error(t, err)

	_, _, err = parseDBServer([]byte(":\tnot yaml"))
	require.Error(t, err)
}

func TestParseAdminPass(t *testing.T) {
	pass, err := parseAdminPass([]byte(dbServerYAML), "cust-1", "percona-1")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pass)

	_, err = parseAdminPass([]byte(dbServerYAML), "cust-1", "other-server")
	require.Error(t, err)
}

func runningPod(name, ns string, labels map[string]string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns, Labels: labels},
		Status:     corev1.PodStatus{Phase: corev1.PodRunning},
	}
}

func TestMySQLDumpCollector(t *testing.T) {
	ns := "pcd"
	client := fake.NewSimpleClientset(
		runningPod("resmgr-abc", ns, map[string]string{"app": "resmgr"}),
		runningPod("percona-haproxy-0", ns, map[string]string{"component": "haproxy"}),
	)

	root := t.TempDir()
	c := &MySQLDumpCollector{
		Client:      client,
		Writer:      archive.NewWriter(root),
		Namespace:   ns,
		PodLabel:    "component=haproxy",
		ServiceName: "percona-db-haproxy",
	}
	c.exec = func(_ context.Context, pod, container string, command []string, stdout, _ io.Writer) error {
		script := command[len(command)-1]
		switch {
		case strings.Contains(script, "regions"):
			// The start-key variables expand inside the pod shell, so
			// the script must carry them unescaped.
			assert.Equal(t, "resmgr-abc", pod)
			assert.Equal(t, resmgrContainer, container)
			assert.Contains(t, script, "--start-key customers/$CUSTOMER_ID/regions/$REGION_ID/db")
			assert.NotContains(t, script, `\$`)
			_, err := io.WriteString(stdout, dbConfigYAML)
			return err
		case strings.Contains(script, "dbservers"):
			_, err := io.WriteString(stdout, dbServerYAML)
			return err
		case strings.Contains(script, "mysqldump"):
			assert.Equal(t, "percona-haproxy-0", pod)
			assert.Equal(t, dbContainer, container)
			assert.Contains(t, script, "MYSQL_PWD='s3cret'")
			assert.Contains(t, script, "-h percona-db-haproxy")
			_, err := io.WriteString(stdout, "-- MySQL dump")
			return err
		default:
			return fmt.Errorf("unexpected command: %v", command)
		}
	}

	require.NoError(t, c.Collect(context.Background()))

	f, err := os.Open(filepath.Join(root, "database", dumpFileName))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "-- MySQL dump", string(data))
}

func TestMySQLDumpCollectorNoDBPod(t *testing.T) {
	ns := "pcd"
	client := fake.NewSimpleClientset(
		runningPod("resmgr-abc", ns, map[string]string{"app": "resmgr"}),
	)

	c := &MySQLDumpCollector{
		Client:    client,
		Writer:    archive.NewWriter(t.TempDir()),
		Namespace: ns,
		PodLabel:  "component=haproxy",
	}
	c.exec = func(_ context.Context, _, _ string, command []string, stdout, _ io.Writer) error {
		script := command[len(command)-1]
		if strings.Contains(script, "regions") {
			_, err := io.WriteString(stdout, dbConfigYAML)
			return err
		}
		_, err := io.WriteString(stdout, dbServerYAML)
		return err
	}

	err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}
