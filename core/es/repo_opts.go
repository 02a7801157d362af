package es

type (
	valueOption[T any] struct{ v T }

	repoOpts struct {
		registry    *EventRegistry
		metrics     Metrics
		idGenerator IDGenerator
		cacheSize   int
	}

	RepositoryOption      interface{ applyToRepository(*repoOpts) }
	RepoRegistryOption    valueOption[*EventRegistry]
	RepoIDGeneratorOption valueOption[IDGenerator]
	MetricsOption         valueOption[Metrics]
	RepoCacheOption       valueOption[int]
)

// WithRegistry shares an event registry between repositories. Aggregates
// register their events with it on first use.
func WithRegistry(r *EventRegistry) RepoRegistryOption { return RepoRegistryOption{v: r} }

// WithIDGenerator sets a custom ID generator for event envelope IDs.
func WithIDGenerator(gen IDGenerator) RepoIDGeneratorOption {
	return RepoIDGeneratorOption{v: gen}
}

// WithMetrics sets the metrics implementation of the repository.
func WithMetrics(m Metrics) MetricsOption { return MetricsOption{v: m} }

// WithRepoCacheLRU keeps up to size recently used streams in memory. Loads
// of a cached stream skip the store; a save the store rejects evicts it.
func WithRepoCacheLRU(size int) RepoCacheOption { return RepoCacheOption{v: size} }

func (o RepoRegistryOption) applyToRepository(options *repoOpts)    { options.registry = o.v }
func (o RepoIDGeneratorOption) applyToRepository(options *repoOpts) { options.idGenerator = o.v }
func (o MetricsOption) applyToRepository(options *repoOpts)         { options.metrics = o.v }
func (o RepoCacheOption) applyToRepository(options *repoOpts)       { options.cacheSize = o.v }

func newRepoOpts(opts ...RepositoryOption) repoOpts {
	options := repoOpts{
		registry:    NewRegistry(),
		metrics:     NopMetrics(),
		idGenerator: DefaultIDGenerator(),
	}
	for _, opt := range opts {
		opt.applyToRepository(&options)
	}
	return options
}
