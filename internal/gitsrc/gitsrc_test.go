package gitsrc

import "github.com/anicka-net/ossuary/schema"

func refFor(host, owner, repo string) schema.RepositoryRef {
	return schema.RepositoryRef{
		Host:  host,
		Owner: owner,
		Repo:  repo,
		URL:   "https://" + host + "/" + owner + "/" + repo,
	}
}
