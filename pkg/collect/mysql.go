package collect

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/platform9/pcddebug/pkg/archive"
	pcderrors "github.com/platform9/pcddebug/pkg/errors"
)

const (
	// resmgrLabel selects the resource manager pod holding consul access.
	resmgrLabel     = "app=resmgr"
	resmgrContainer = "resmgr"
	dbContainer     = "haproxy"

	dumpFileName = "mysql_dump_all_databases.sql.gz"
)

// execFunc abstracts pod exec for testing.
type execFunc func(ctx context.Context, pod, container string, command []string, stdout, stderr io.Writer) error

// MySQLDumpCollector streams a full database dump out of the cluster.
// The DB endpoint and credentials are discovered from consul via the
// resource manager pod; the dump itself runs through the HAProxy pod
// fronting the database and is gzip-compressed straight to disk rather
// than buffered in memory.
type MySQLDumpCollector struct {
	Client      kubernetes.Interface
	Config      *rest.Config
	Writer      *archive.Writer
	Namespace   string
	PodLabel    string
	ServiceName string
	Logger      *slog.Logger

	exec execFunc
}

// consulDBConfig is the shape of the region DB config consul returns.
type consulDBConfig struct {
	Customers map[string]struct {
		Regions map[string]struct {
			DBServer string `yaml:"dbserver"`
		} `yaml:"regions"`
	} `yaml:"customers"`
}

// consulDBServerConfig is the shape of the DB server credential entry.
type consulDBServerConfig struct {
	Customers map[string]struct {
		DBServers map[string]struct {
			AdminPass string `yaml:"admin_pass"`
		} `yaml:"dbservers"`
	} `yaml:"customers"`
}

// Collect performs the dump. Unlike traversal fetches this is a single
// multi-stage operation: any stage failing aborts the dump (but never
// the surrounding run).
func (c *MySQLDumpCollector) Collect(ctx context.Context) error {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	if c.exec == nil {
		c.exec = c.execInPod
	}

	log.Info("starting database dump", slog.String("namespace", c.Namespace))

	resmgrPod, err := c.findPod(ctx, resmgrLabel)
	if err != nil {
		return err
	}

	log.Info("fetching DB configuration from consul", slog.String("pod", resmgrPod))
	dbServer, customerID, err := c.discoverDBServer(ctx, resmgrPod)
	if err != nil {
		return err
	}

	log.Info("fetching DB credentials", slog.String("dbserver", dbServer))
	adminPass, err := c.discoverAdminPass(ctx, resmgrPod, customerID, dbServer)
	if err != nil {
		return err
	}

	dbPod, err := c.findPod(ctx, c.PodLabel)
	if err != nil {
		return err
	}
	log.Info("performing mysqldump", slog.String("pod", dbPod))

	out, err := c.Writer.Create("database", dumpFileName)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	gz := gzip.NewWriter(out)
	var stderr bytes.Buffer
	dumpCmd := []string{"bash", "-l", "-c", fmt.Sprintf(
		"MYSQL_PWD='%s' mysqldump -h %s --single-transaction --all-databases -u root",
		adminPass, c.ServiceName)}

	if err := c.exec(ctx, dbPod, dbContainer, dumpCmd, gz, &stderr); err != nil {
		_ = gz.Close()
		return pcderrors.WrapWithContext(pcderrors.ErrCodeExecutionFailed,
			"mysqldump failed", err,
			map[string]any{"pod": dbPod, "stderr": stderr.String()})
	}
	if err := gz.Close(); err != nil {
		return pcderrors.Wrap(pcderrors.ErrCodeWriteFailed, "cannot finalize dump file", err)
	}
	if err := out.Close(); err != nil {
		return pcderrors.Wrap(pcderrors.ErrCodeWriteFailed, "cannot close dump file", err)
	}

	log.Info("database dump saved", slog.String("file", dumpFileName))
	return nil
}

// discoverDBServer asks consul for the region DB config and returns the
// DB server name along with the customer id it lives under. The
// CUSTOMER_ID and REGION_ID variables must reach the pod's login shell
// unescaped; that shell has them set and expands them.
func (c *MySQLDumpCollector) discoverDBServer(ctx context.Context, pod string) (dbServer, customerID string, err error) {
	raw, err := c.consulDump(ctx, pod, `customers/$CUSTOMER_ID/regions/$REGION_ID/db`)
	if err != nil {
		return "", "", err
	}
	return parseDBServer(raw)
}

// discoverAdminPass asks consul for the DB server entry and returns the
// admin password.
func (c *MySQLDumpCollector) discoverAdminPass(ctx context.Context, pod, customerID, dbServer string) (string, error) {
	raw, err := c.consulDump(ctx, pod, fmt.Sprintf(`customers/%s/dbservers/%s`, customerID, dbServer))
	if err != nil {
		return "", err
	}
	return parseAdminPass(raw, customerID, dbServer)
}

func (c *MySQLDumpCollector) consulDump(ctx context.Context, pod, startKey string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := []string{"bash", "-l", "-c", fmt.Sprintf("consul-dump-yaml --start-key %s", startKey)}
	if err := c.exec(ctx, pod, resmgrContainer, cmd, &stdout, &stderr); err != nil {
		return nil, pcderrors.WrapWithContext(pcderrors.ErrCodeExecutionFailed,
			"cannot fetch consul configuration", err,
			map[string]any{"pod": pod, "stderr": stderr.String()})
	}
	return stdout.Bytes(), nil
}

func parseDBServer(raw []byte) (dbServer, customerID string, err error) {
	var cfg consulDBConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return "", "", pcderrors.Wrap(pcderrors.ErrCodeInternal, "invalid consul DB config YAML", err)
	}
	for cid, customer := range cfg.Customers {
		for _, region := range customer.Regions {
			if region.DBServer != "" {
				return region.DBServer, cid, nil
			}
		}
	}
	return "", "", pcderrors.New(pcderrors.ErrCodeNotFound, "no dbserver found in consul DB config")
}

func parseAdminPass(raw []byte, customerID, dbServer string) (string, error) {
	var cfg consulDBServerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return "", pcderrors.Wrap(pcderrors.ErrCodeInternal, "invalid consul DB server YAML", err)
	}
	if pass := cfg.Customers[customerID].DBServers[dbServer].AdminPass; pass != "" {
		return pass, nil
	}
	return "", pcderrors.NewWithContext(pcderrors.ErrCodeNotFound,
		"no admin password found for dbserver",
		map[string]any{"dbserver": dbServer})
}

// findPod returns the first running pod matching the label selector.
func (c *MySQLDumpCollector) findPod(ctx context.Context, selector string) (string, error) {
	pods, err := c.Client.CoreV1().Pods(c.Namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return "", pcderrors.Wrap(pcderrors.ErrCodeInternal,
			fmt.Sprintf("cannot list pods with selector %q", selector), err)
	}
	for _, pod := range pods.Items {
		if pod.Status.Phase == corev1.PodRunning {
			return pod.Name, nil
		}
	}
	return "", pcderrors.NewWithContext(pcderrors.ErrCodeNotFound,
		fmt.Sprintf("no running pod matches selector %q in namespace %q", selector, c.Namespace),
		map[string]any{"selector": selector, "namespace": c.Namespace})
}

// execInPod runs a command inside a pod container, streaming stdout to
// the given writer. This is how the dump avoids buffering gigabytes.
func (c *MySQLDumpCollector) execInPod(ctx context.Context, pod, container string, command []string, stdout, stderr io.Writer) error {
	req := c.Client.CoreV1().RESTClient().
		Post().
		Resource("pods").
		Namespace(c.Namespace).
		Name(pod).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: container,
			Command:   command,
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.Config, "POST", req.URL())
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	return executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: stdout,
		Stderr: stderr,
	})
}
