package cli

// defaultConfigFileContent is a sample config file covering the
// sections internal/config reads. The retrieved pack references this
// constant (cli.go, run.go, run_test.go) but its definition was
// filtered out along with the gortcd.yml it quoted; this is resolved's
// own equivalent. Nothing loads it: when no config file is found on the
// searched paths, the values installed by config.SetDefaults apply.
const defaultConfigFileContent = `
version: "1"

server:
  addr: "127.0.0.1:8853"
  workers: 100
  debug:
    collect: false
  prometheus:
    active: true
    addr: ""
  pprof: ""

resolver:
  servers:
    - "8.8.8.8:53"
    - "1.1.1.1:53"
  timeout: "2s"
  reuseport: true

api:
  addr: "127.0.0.1:8854"

policy:
  rules: []
`
